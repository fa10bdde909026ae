package auth

import (
	"context"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/dwarvesf/walletpay-backend/internal/utils/config"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
	"github.com/dwarvesf/walletpay-backend/internal/utils/vault"
)

// MaxUIDLength is the identity provider's limit for custom token uids.
const MaxUIDLength = 128

var ErrInvalidUID = errors.New("uid must be between 1 and 128 characters")

// ITokenIssuer mints sign-in tokens for anonymous clients.
type ITokenIssuer interface {
	CustomToken(ctx context.Context, uid string) (string, error)
}

type customTokenMinter interface {
	CustomToken(ctx context.Context, uid string) (string, error)
}

type FirebaseIssuer struct {
	client customTokenMinter
	logger *logger.Logger
}

// NewFirebaseIssuer builds the admin SDK client. The service account comes from Vault when
// secrets is non-nil, then from the credentials file, then from application default credentials.
func NewFirebaseIssuer(ctx context.Context, cfg config.FirebaseConfig, secrets vault.SecretReader, logger *logger.Logger) (*FirebaseIssuer, error) {
	opts, err := clientOptions(cfg, secrets)
	if err != nil {
		return nil, err
	}

	var fbConfig *firebase.Config
	if cfg.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "init firebase app")
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "init firebase auth client")
	}

	return &FirebaseIssuer{client: client, logger: logger}, nil
}

func clientOptions(cfg config.FirebaseConfig, secrets vault.SecretReader) ([]option.ClientOption, error) {
	if secrets != nil {
		serviceAccount, err := secrets.GetKV(cfg.VaultSecretKey)
		if err != nil {
			return nil, errors.Wrap(err, "read firebase service account from vault")
		}
		return []option.ClientOption{option.WithCredentialsJSON([]byte(serviceAccount))}, nil
	}
	if cfg.CredentialsFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}, nil
	}
	return nil, nil
}

func (i *FirebaseIssuer) CustomToken(ctx context.Context, uid string) (string, error) {
	if err := ValidateUID(uid); err != nil {
		return "", err
	}

	token, err := i.client.CustomToken(ctx, uid)
	if err != nil {
		i.logger.Error("[CustomToken][firebase]", map[string]string{
			"uid":   uid,
			"error": err.Error(),
		})
		return "", errors.Wrap(err, "mint custom token")
	}
	return token, nil
}

func ValidateUID(uid string) error {
	if uid == "" || len(uid) > MaxUIDLength {
		return ErrInvalidUID
	}
	return nil
}

var _ customTokenMinter = (*fbauth.Client)(nil)
