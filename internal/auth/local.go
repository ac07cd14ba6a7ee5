package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/example/model-workshop/internal/models"
)

// DefaultPassword é a senha compartilhada pelas contas de demonstração.
const DefaultPassword = "password"

// Credential é uma entrada da tabela estática. Só o hash da senha é mantido.
type Credential struct {
	User         models.User
	PasswordHash []byte
}

// CredentialTable é a tabela fixa de contas; não muda em tempo de execução.
type CredentialTable struct {
	entries []Credential
}

// HashPassword gera o hash bcrypt de uma senha.
func HashPassword(password string, cost int) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), cost)
}

// DefaultCredentials monta as três contas (student, admin, alpha) com o mesmo hash.
func DefaultCredentials(hash []byte) *CredentialTable {
	users := []models.User{
		{ID: "1", Username: "student", Email: "student@example.com", Role: models.RoleStudent},
		{ID: "2", Username: "admin", Email: "admin@example.com", Role: models.RoleAdmin},
		{ID: "3", Username: "alpha", Email: "alpha@example.com", Role: models.RoleAlpha},
	}
	t := &CredentialTable{}
	for _, u := range users {
		t.entries = append(t.entries, Credential{User: u, PasswordHash: hash})
	}
	return t
}

// Authenticate procura o e-mail e confere a senha. O usuário devolvido não carrega senha.
func (t *CredentialTable) Authenticate(email, password string) (models.User, bool) {
	for _, e := range t.entries {
		if e.User.Email != email {
			continue
		}
		if bcrypt.CompareHashAndPassword(e.PasswordHash, []byte(password)) != nil {
			return models.User{}, false
		}
		return e.User, true
	}
	return models.User{}, false
}

// Users lista os usuários da tabela.
func (t *CredentialTable) Users() []models.User {
	out := make([]models.User, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.User)
	}
	return out
}
