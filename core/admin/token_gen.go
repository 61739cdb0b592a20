package admin

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Password reset tokens read "<expiry>.<signature>", the expiry being a base36 unix time.
const tokenSep = "."

var (
	resetKeyLabel = []byte("nyumba/admin/password-reset")

	// errors
	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
	errInvalidUID   = errors.New("invalid uid")
)

// TokenGenerator makes and checks password reset tokens.
// Tokens are void once the Admin's email, password or last login changes.
type TokenGenerator struct {
	key     []byte
	timeout time.Duration
	nowFunc func() time.Time // mockable
}

func NewTokenGenerator(secret string, timeout time.Duration) *TokenGenerator {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(resetKeyLabel)
	return &TokenGenerator{key: mac.Sum(nil), timeout: timeout, nowFunc: time.Now}
}

// EncodeUID is the Admin ID as 32 hex digits, for reset links.
func EncodeUID(adm Admin) string {
	id, err := uuid.Parse(adm.ID)
	if err != nil {
		return ""
	}
	return hex.EncodeToString(id[:])
}

func decodeUID(uid string) (string, error) {
	if len(uid) != 2*len(uuid.UUID{}) {
		return "", errInvalidUID
	}
	id, err := uuid.Parse(uid)
	if err != nil {
		return "", errInvalidUID
	}
	return id.String(), nil
}

func (gen *TokenGenerator) MakeToken(adm Admin) string {
	return gen.token(adm, gen.nowFunc().Add(gen.timeout).Unix())
}

func (gen *TokenGenerator) VerifyToken(adm Admin, token string) error {
	exp, _, ok := strings.Cut(token, tokenSep)
	if !ok {
		return errInvalidToken
	}
	expiry, err := strconv.ParseInt(exp, 36, 64)
	if err != nil {
		return errInvalidToken
	}
	if !hmac.Equal([]byte(gen.token(adm, expiry)), []byte(token)) {
		return errInvalidToken
	}
	if gen.nowFunc().Unix() > expiry {
		return errTokenExpired
	}
	return nil
}

func (gen *TokenGenerator) token(adm Admin, expiry int64) string {
	exp := strconv.FormatInt(expiry, 36)
	mac := hmac.New(sha256.New, gen.key)
	for _, field := range loginState(adm) {
		mac.Write(field)
		mac.Write([]byte{0})
	}
	mac.Write([]byte(exp))
	return exp + tokenSep + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func loginState(adm Admin) [][]byte {
	var lastLogin int64
	if adm.LastLogin != nil {
		lastLogin = adm.LastLogin.UnixNano()
	}
	return [][]byte{
		[]byte(adm.ID),
		[]byte(adm.Email),
		adm.PasswordHash,
		[]byte(strconv.FormatInt(lastLogin, 10)),
	}
}
