package models

// OpType дискриминант варианта операции.
// Operation - закрытый tagged-variant тип: каждая запись в логе
// принадлежит ровно одному из трех вариантов.
type OpType string

const (
	// OpTypeStroke свободное рисование (последовательность точек)
	OpTypeStroke OpType = "stroke"
	// OpTypeShape размещение фигуры (circle, square, triangle)
	OpTypeShape OpType = "shape"
	// OpTypeShapeUpdate изменение ранее размещенной фигуры по targetId
	OpTypeShapeUpdate OpType = "shape_update"
)

// Composite режимы наложения штриха
const (
	CompositeSourceOver     = "source-over"
	CompositeDestinationOut = "destination-out"
)

// ShapeKind допустимые виды фигур
const (
	ShapeCircle   = "circle"
	ShapeSquare   = "square"
	ShapeTriangle = "triangle"
)

// Point точка на холсте
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Operation представляет одну долговременную правку холста.
// Запись иммутабельна после добавления в лог: shape_update - это новая
// запись со ссылкой на прежнюю фигуру, а не правка на месте.
//
// Поля X/Y/Width/Height объявлены указателями, чтобы отличать
// отсутствующее значение от нуля: для shape координаты обязательны,
// для shape_update все поля кроме targetId опциональны.
type Operation struct {
	ID        string   `json:"id,omitempty"`        // ID уникальный идентификатор операции (UUID), проставляется сервером
	UserID    string   `json:"userId,omitempty"`    // UserID идентификатор автора, проставляется сервером
	Type      OpType   `json:"type"`                // Type дискриминант варианта
	Color     string   `json:"color,omitempty"`     // Color цветовой токен
	Composite string   `json:"composite,omitempty"` // Composite режим наложения (только stroke)
	Kind      string   `json:"kind,omitempty"`      // Kind вид фигуры (только shape)
	TargetID  string   `json:"targetId,omitempty"`  // TargetID ссылка на id прежней фигуры (только shape_update)
	Points    []Point  `json:"points,omitempty"`    // Points точки штриха, минимум две (только stroke)
	X         *float64 `json:"x,omitempty"`         // X позиция
	Y         *float64 `json:"y,omitempty"`         // Y позиция
	Width     *float64 `json:"width,omitempty"`     // Width явная ширина
	Height    *float64 `json:"height,omitempty"`    // Height явная высота
	Size      float64  `json:"size,omitempty"`      // Size толщина штриха либо legacy-размер фигуры
	Timestamp int64    `json:"timestamp,omitempty"` // Timestamp серверное время в unix-миллисекундах
}

// Clone создает глубокую копию операции.
// Срез точек и указатели на числа копируются по значению, чтобы
// модификация оригинала не была видна через копию.
func (op *Operation) Clone() Operation {
	c := *op

	if op.Points != nil {
		c.Points = make([]Point, len(op.Points))
		copy(c.Points, op.Points)
	}

	c.X = cloneFloat(op.X)
	c.Y = cloneFloat(op.Y)
	c.Width = cloneFloat(op.Width)
	c.Height = cloneFloat(op.Height)

	return c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Float возвращает указатель на значение - помощник для построения
// операций с опциональными числовыми полями.
func Float(v float64) *float64 {
	return &v
}

// Snapshot представляет полное состояние лога комнаты на момент чтения:
// версия плюс копия последовательности операций.
// Operations никогда не nil, чтобы на проводе сериализоваться как [].
type Snapshot struct {
	Operations []Operation `json:"operations"`
	Version    int64       `json:"version"`
}
