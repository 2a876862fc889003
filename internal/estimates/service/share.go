package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"renoquote_backend/platform/apperr"
)

const (
	shareTokenType = "estimate_share"
	qrImageSize    = 256
)

var errShareTokenExpired = errors.New("share token expired")

// ShareQR renders the estimate's share link as a PNG QR code so the
// consumer can hand it to a contractor on site.
func (s *Service) ShareQR(ctx context.Context, id uuid.UUID) ([]byte, error) {
	est, err := s.loadLiveEstimate(ctx, id)
	if err != nil {
		return nil, err
	}

	token, err := s.mintShareToken(est.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "share link unavailable", err)
	}

	png, err := qrcode.Encode(s.shareURL(token), qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "qr encoding failed", err)
	}
	return png, nil
}

func (s *Service) mintShareToken(estimateID uuid.UUID) (string, error) {
	secret := s.cfg.GetEstimateShareSecret()
	if secret == "" {
		return "", errors.New("share secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  estimateID.String(),
		"type": shareTokenType,
		"exp":  now.Add(s.cfg.GetEstimateShareTTL()).Unix(),
		"iat":  now.Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(secret))
}

func parseShareToken(secret, rawToken string) (uuid.UUID, error) {
	parsed, err := jwt.Parse(rawToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, errShareTokenExpired
		}
		return uuid.Nil, err
	}
	if !parsed.Valid {
		return uuid.Nil, errors.New("invalid share token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid share token")
	}
	if tokenType, _ := claims["type"].(string); tokenType != shareTokenType {
		return uuid.Nil, errors.New("invalid share token")
	}

	sub, _ := claims["sub"].(string)
	return uuid.Parse(sub)
}

func (s *Service) shareURL(token string) string {
	base := strings.TrimRight(s.cfg.GetAppBaseURL(), "/")
	return base + "/estimates/shared/" + token
}
