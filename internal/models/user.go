package models

// User представляет presence одного участника комнаты.
// Идентичность генерируется сервером в момент подключения, нигде не
// сохраняется и живет ровно столько, сколько живет соединение.
type User struct {
	ID          string `json:"userId"`      // ID уникальный идентификатор участника (UUID)
	DisplayName string `json:"displayName"` // DisplayName отображаемое имя, сгенерированное сервером
	Color       string `json:"color"`       // Color цвет курсора участника
}
