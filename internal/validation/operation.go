package validation

import (
	"fmt"

	"github.com/iudanet/gophboard/internal/models"
)

// MinStrokePoints минимальное число точек в штрихе
const MinStrokePoints = 2

// ValidateOperation проверяет кандидата на добавление в лог операций.
// Чистая функция без побочных эффектов: либо операция целиком валидна,
// либо возвращается описательная ошибка и лог не должен меняться.
// Неизвестный дискриминант - сам по себе ошибка.
func ValidateOperation(op *models.Operation) error {
	switch op.Type {
	case models.OpTypeStroke:
		return validateStroke(op)
	case models.OpTypeShape:
		return validateShape(op)
	case models.OpTypeShapeUpdate:
		return validateShapeUpdate(op)
	default:
		return fmt.Errorf("unknown operation type %q", op.Type)
	}
}

// validateStroke проверяет штрих:
// минимум две точки, положительная толщина, допустимый режим наложения
func validateStroke(op *models.Operation) error {
	if len(op.Points) < MinStrokePoints {
		return fmt.Errorf("stroke requires at least %d points, got %d", MinStrokePoints, len(op.Points))
	}

	if op.Size <= 0 {
		return fmt.Errorf("stroke size must be positive, got %v", op.Size)
	}

	if op.Color == "" {
		return fmt.Errorf("stroke color must be a non-empty string")
	}

	if op.Composite != models.CompositeSourceOver && op.Composite != models.CompositeDestinationOut {
		return fmt.Errorf("stroke composite must be %q or %q, got %q",
			models.CompositeSourceOver, models.CompositeDestinationOut, op.Composite)
	}

	return nil
}

// validateShape проверяет фигуру:
// известный вид, обязательные координаты, размеры через legacy size
// либо через явные width и height
func validateShape(op *models.Operation) error {
	switch op.Kind {
	case models.ShapeCircle, models.ShapeSquare, models.ShapeTriangle:
	default:
		return fmt.Errorf("shape kind must be one of %q, %q, %q, got %q",
			models.ShapeCircle, models.ShapeSquare, models.ShapeTriangle, op.Kind)
	}

	if op.X == nil || op.Y == nil {
		return fmt.Errorf("shape requires numeric x and y")
	}

	legacySize := op.Size > 0
	explicitDims := op.Width != nil && op.Height != nil && *op.Width > 0 && *op.Height > 0
	if !legacySize && !explicitDims {
		return fmt.Errorf("shape requires positive size or positive width and height")
	}

	if op.Color == "" {
		return fmt.Errorf("shape color must be a non-empty string")
	}

	return nil
}

// validateShapeUpdate проверяет изменение фигуры:
// непустая ссылка на цель и хотя бы одно из полей - пара координат,
// пара размеров или цвет
func validateShapeUpdate(op *models.Operation) error {
	if op.TargetID == "" {
		return fmt.Errorf("shape update requires a non-empty targetId")
	}

	hasPosition := op.X != nil && op.Y != nil
	hasDimensions := op.Width != nil && op.Height != nil
	hasColor := op.Color != ""

	if !hasPosition && !hasDimensions && !hasColor {
		return fmt.Errorf("shape update requires at least one of: position, dimensions, color")
	}

	if hasDimensions && (*op.Width <= 0 || *op.Height <= 0) {
		return fmt.Errorf("shape update dimensions must be positive")
	}

	return nil
}
