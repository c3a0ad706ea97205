package evaluation

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Identity is a freshly minted anonymous participant. Secret is only ever
// stored hashed.
type Identity struct {
	Email     string
	FirstName string
	LastName  string
	Secret    string
}

type IdentityGenerator interface {
	NewIdentity() (Identity, error)
}

// UUIDIdentities mints participants named after a random uuid.
type UUIDIdentities struct {
	Domain string
}

func (g UUIDIdentities) NewIdentity() (Identity, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return Identity{}, err
	}
	tag := strings.ReplaceAll(id.String(), "-", "")[:12]
	domain := g.Domain
	if domain == "" {
		domain = "participants.invalid"
	}
	return Identity{
		Email:     "participant." + tag + "@" + domain,
		FirstName: "Participant",
		LastName:  strings.ToUpper(tag[:6]),
		Secret:    id.String(),
	}, nil
}

func hashSecret(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
