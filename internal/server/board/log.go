// Package board содержит состояние совместного холста:
// упорядоченный лог операций комнаты и реестр комнат с участниками.
package board

import (
	"sync"

	"github.com/iudanet/gophboard/internal/models"
	"github.com/iudanet/gophboard/internal/validation"
)

// Log упорядоченный лог операций одной комнаты.
//
// Инварианты:
//   - operations пополняется только через Append и укорачивается только
//     через Undo, RemoveByAuthor и ClearAll;
//   - redoBuffer наполняется только через Undo и опустошается через Redo,
//     любая другая успешная мутация сбрасывает его целиком;
//   - version растет ровно на единицу на каждую успешную мутацию и не
//     меняется, если мутация оказалась no-op.
//
// Все мутации комнаты сериализуются одним мьютексом; критические секции
// не делают I/O, поэтому время удержания ограничено.
type Log struct {
	operations []models.Operation
	redoBuffer []models.Operation
	version    int64
	mu         sync.Mutex
}

// NewLog создает пустой лог с версией 0.
func NewLog() *Log {
	return &Log{}
}

// Append валидирует кандидата и добавляет его в конец лога.
// При ошибке валидации лог не меняется. Успешное добавление целиком
// сбрасывает redo-буфер: любая новая правка инвалидирует историю redo.
func (l *Log) Append(op models.Operation) (models.Operation, error) {
	if err := validation.ValidateOperation(&op); err != nil {
		return models.Operation{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.operations = append(l.operations, op.Clone())
	l.redoBuffer = nil
	l.version++

	return op, nil
}

// Undo откатывает последнюю операцию лога независимо от ее автора.
// Откат глобален для комнаты - это осознанное упрощение модели, а не
// ошибка. На пустом логе возвращает false без изменения состояния.
// Снимок берется под тем же локом, что и мутация, чтобы вызывающий
// рассылал согласованное состояние.
func (l *Log) Undo() (models.Snapshot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.operations) == 0 {
		return models.Snapshot{}, false
	}

	last := l.operations[len(l.operations)-1]
	l.operations = l.operations[:len(l.operations)-1]
	l.redoBuffer = append(l.redoBuffer, last)
	l.version++

	return l.snapshotLocked(), true
}

// Redo возвращает последнюю откаченную операцию обратно в лог.
// На пустом redo-буфере возвращает false без изменения состояния.
func (l *Log) Redo() (models.Snapshot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.redoBuffer) == 0 {
		return models.Snapshot{}, false
	}

	last := l.redoBuffer[len(l.redoBuffer)-1]
	l.redoBuffer = l.redoBuffer[:len(l.redoBuffer)-1]
	l.operations = append(l.operations, last)
	l.version++

	return l.snapshotLocked(), true
}

// RemoveByAuthor удаляет из лога все операции указанного автора.
// Возвращает снимок и число удаленных записей. Если автор ничего не
// рисовал, состояние и версия не меняются и возвращается ноль.
func (l *Log) RemoveByAuthor(userID string) (models.Snapshot, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.operations[:0]
	for _, op := range l.operations {
		if op.UserID != userID {
			kept = append(kept, op)
		}
	}

	removed := len(l.operations) - len(kept)
	if removed == 0 {
		return l.snapshotLocked(), 0
	}

	l.operations = kept
	l.redoBuffer = nil
	l.version++

	return l.snapshotLocked(), removed
}

// ClearAll опустошает лог и redo-буфер.
// Возвращает снимок и прежнее число операций; повторный вызов на уже
// пустом логе - no-op с нулем и без изменения версии.
func (l *Log) ClearAll() (models.Snapshot, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := len(l.operations)
	if removed == 0 {
		return l.snapshotLocked(), 0
	}

	l.operations = nil
	l.redoBuffer = nil
	l.version++

	return l.snapshotLocked(), removed
}

// Snapshot возвращает копию текущего состояния лога.
// Читатель никогда не видит наполовину примененную мутацию.
func (l *Log) Snapshot() models.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Version возвращает текущую версию лога.
func (l *Log) Version() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.version
}

// snapshotLocked собирает снимок; вызывается только под l.mu.
// Операции иммутабельны после добавления, поэтому достаточно копии
// среза - содержимое записей разделяется безопасно.
func (l *Log) snapshotLocked() models.Snapshot {
	ops := make([]models.Operation, len(l.operations))
	copy(ops, l.operations)

	return models.Snapshot{
		Version:    l.version,
		Operations: ops,
	}
}
