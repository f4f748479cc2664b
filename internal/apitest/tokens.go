package apitest

import (
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vishal1807gupta/go-splitwise/internal/models"
)

var tokenKey = []byte("apitest-google-signing-key")

// GoogleToken mints an ID token shaped like the ones the federated provider issues.
func GoogleToken(email, name string, expiresAt time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":            "https://accounts.google.com",
		"email":          email,
		"email_verified": true,
		"name":           name,
		"exp":            expiresAt.Unix(),
	})
	signed, err := token.SignedString(tokenKey)
	if err != nil {
		panic(err)
	}
	return signed
}

func tokenIdentity(raw string) (email, name string, ok bool) {
	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return tokenKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", "", false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", false
	}
	email, _ = claims["email"].(string)
	name, _ = claims["name"].(string)
	return email, name, email != ""
}

func sortGroups(groups []models.Group) {
	sort.Slice(groups, func(i, j int) bool { return groups[i].GroupID < groups[j].GroupID })
}
