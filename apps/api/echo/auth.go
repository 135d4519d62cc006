package echoapi

import (
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
)

const tokenContextKey = "accountToken"

// Claims represents the authorization claims transmitted via a JWT.
// Subject holds the account ID.
type Claims struct {
	jwt.StandardClaims
	Username           string       `json:"username,omitempty"`
	Email              string       `json:"email,omitempty"`
	Role               account.Role `json:"role,omitempty"`
	MustChangePassword bool         `json:"mcp,omitempty"`
}

func (c Claims) LogPerson() core.LogPerson {
	id, _ := strconv.Atoi(c.Subject)
	return core.LogPerson{ID: id, Username: c.Username, Email: c.Email, Role: string(c.Role)}
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

func NewClaims(acc account.Account, conf *core.Config) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   strconv.Itoa(acc.ID),
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username:           acc.Username,
		Email:              acc.Email,
		Role:               acc.Role,
		MustChangePassword: acc.MustChangePassword,
	}
}

// GenerateToken generates a signed JWT token string representing the account Claims.
func GenerateToken(claims *Claims, conf *core.Config) (string, error) {
	jwtConf := newJWTConfig(conf)
	token := jwt.NewWithClaims(jwt.GetSigningMethod(jwtConf.SigningMethod), claims)

	ss, err := token.SignedString(jwtConf.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextCaller(ctx echo.Context) (account.Caller, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return account.Caller{}, err
	}
	id, err := strconv.Atoi(claims.Subject)
	if err != nil || !claims.Role.IsValid() {
		return account.Caller{}, errUnauthorized
	}
	return account.Caller{ID: id, Role: claims.Role}, nil
}
