package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-gin-gorm-auth/internal/domain"
)

// MinSecretLen HMAC 密钥最小长度
const MinSecretLen = 32

var (
	ErrWeakSecret         = fmt.Errorf("jwt secret must be at least %d characters", MinSecretLen)
	ErrUnsupportedAlg     = errors.New("jwt algorithm must be one of HS256, HS384, HS512")
	ErrMissingClaims      = errors.New("token missing sub or email")
	ErrUnexpectedClaimsTy = errors.New("unexpected claims type")
)

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type JWTer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	method jwt.SigningMethod
	now    func() time.Time // 测试可替换
}

func NewJWTer(secret, alg, issuer string, ttl time.Duration) (*JWTer, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrWeakSecret
	}
	if alg == "" {
		alg = "HS256"
	}
	var m jwt.SigningMethod
	switch alg {
	case "HS256":
		m = jwt.SigningMethodHS256
	case "HS384":
		m = jwt.SigningMethodHS384
	case "HS512":
		m = jwt.SigningMethodHS512
	default:
		return nil, ErrUnsupportedAlg
	}
	if ttl <= 0 {
		return nil, errors.New("jwt ttl must be positive")
	}
	return &JWTer{Secret: []byte(secret), Issuer: issuer, TTL: ttl, method: m, now: time.Now}, nil
}

func (j *JWTer) clock() time.Time {
	if j.now != nil {
		return j.now()
	}
	return time.Now()
}

func (j *JWTer) signingMethod() jwt.SigningMethod {
	if j.method == nil {
		return jwt.SigningMethodHS256
	}
	return j.method
}

// Encode 签发 {sub, email, exp}
func (j *JWTer) Encode(subject, email string, expiry time.Time) (string, error) {
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(j.clock()),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}
	return jwt.NewWithClaims(j.signingMethod(), claims).SignedString(j.Secret)
}

// Issue 以当前时间 + TTL 作为过期时间
func (j *JWTer) Issue(subject, email string) (string, time.Time, error) {
	exp := j.clock().Add(j.TTL)
	tok, err := j.Encode(subject, email, exp)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, exp, nil
}

// Decode 严格校验签名与过期（无 leeway），失败统一返回 *domain.InvalidTokenError
func (j *JWTer) Decode(tokenStr string) (*domain.TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{j.signingMethod().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.clock), // exp <= now 即过期，不留 leeway
	}
	if j.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.Issuer))
	}
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return j.Secret, nil
	}, opts...)
	if err != nil {
		return nil, &domain.InvalidTokenError{Err: err}
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, &domain.InvalidTokenError{Err: ErrUnexpectedClaimsTy}
	}
	if c.Subject == "" || c.Email == "" {
		return nil, &domain.InvalidTokenError{Reason: "Invalid token payload", Err: ErrMissingClaims}
	}
	return &domain.TokenClaims{
		Subject:   c.Subject,
		Email:     c.Email,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
