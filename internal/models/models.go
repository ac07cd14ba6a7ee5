package models

import "time"

// Role é o papel RBAC de um usuário do workshop.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
	RoleAlpha   Role = "alpha"
)

// Valid indica se o papel pertence ao conjunto fechado de papéis conhecidos.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleAdmin, RoleAlpha:
		return true
	}
	return false
}

// User representa o usuário autenticado. A senha nunca faz parte desta struct.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// FileDescriptor descreve um dataset "enviado" pelo simulador de upload.
type FileDescriptor struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"type"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// KVEntry é uma linha persistida do armazenamento chave/valor.
type KVEntry struct {
	Scope     string    `gorm:"primaryKey;size:64"`
	Key       string    `gorm:"primaryKey;size:128"`
	Value     string    `gorm:"type:text"`
	UpdatedAt time.Time
}

// TableName fixa o nome da tabela usada pelo gorm.
func (KVEntry) TableName() string {
	return "kv_entries"
}
