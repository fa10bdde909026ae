package vault

import (
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const kubernetesTokenPath = "/var/run/secrets/kubernetes.io/serviceaccount/token"

// SecretReader reads a single value from a KV secret.
type SecretReader interface {
	GetKV(secretKey string) (string, error)
}

// VaultClient talks to Vault over HTTP using a Kubernetes service account login.
type VaultClient struct {
	http         *resty.Client
	kvSecretPath string
	role         string
	token        string
}

type loginResponse struct {
	Errors []string `json:"errors"`
	Auth   *struct {
		ClientToken string `json:"client_token"`
	} `json:"auth"`
}

type kvResponse struct {
	Errors []string `json:"errors"`
	Data   *struct {
		Data map[string]interface{} `json:"data"`
	} `json:"data"`
}

// New logs in with the pod's service account token.
func New(addr, kvSecretPath, role string) (*VaultClient, error) {
	vc := newClient(addr, kvSecretPath, role)

	k8sToken, err := os.ReadFile(kubernetesTokenPath)
	if err != nil {
		return nil, errors.Wrap(err, "read kubernetes token")
	}

	if err := vc.login(string(k8sToken)); err != nil {
		return nil, err
	}
	return vc, nil
}

func newClient(addr, kvSecretPath, role string) *VaultClient {
	return &VaultClient{
		http: resty.New().
			SetBaseURL(addr).
			SetTimeout(10*time.Second).
			SetHeader("Content-Type", "application/json"),
		kvSecretPath: kvSecretPath,
		role:         role,
	}
}

func (vc *VaultClient) login(jwt string) error {
	var result loginResponse
	resp, err := vc.http.R().
		SetBody(map[string]string{"jwt": jwt, "role": vc.role}).
		SetResult(&result).
		SetError(&result).
		Post("/v1/auth/kubernetes/login")
	if err != nil {
		return errors.Wrap(err, "vault login")
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("vault authentication failed with status %d: %v", resp.StatusCode(), result.Errors)
	}
	if result.Auth == nil || result.Auth.ClientToken == "" {
		return errors.New("vault returned empty client_token")
	}

	vc.token = result.Auth.ClientToken
	return nil
}

// GetKV reads secretKey from the configured KV v2 path.
func (vc *VaultClient) GetKV(secretKey string) (string, error) {
	var result kvResponse
	resp, err := vc.http.R().
		SetHeader("X-Vault-Token", vc.token).
		SetResult(&result).
		SetError(&result).
		Get("/v1/" + vc.kvSecretPath)
	if err != nil {
		return "", errors.Wrap(err, "vault kv get")
	}

	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("vault KV get failed with status %d: %v", resp.StatusCode(), result.Errors)
	}
	if result.Data == nil || result.Data.Data == nil {
		return "", errors.New("vault response missing nested 'data' field")
	}

	raw, ok := result.Data.Data[secretKey]
	if !ok {
		return "", fmt.Errorf("secret key '%s' not found", secretKey)
	}

	secret, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("secret value for key '%s' is not a string", secretKey)
	}

	return secret, nil
}
