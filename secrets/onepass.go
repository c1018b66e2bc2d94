// Package secrets fills missing credentials from 1Password.
package secrets

import (
	"context"
	"fmt"

	"github.com/1password/onepassword-sdk-go"
	"github.com/NamiCreative/Lemniscate/config"
	"github.com/NamiCreative/Lemniscate/logging"
)

// Vault is the 1Password vault holding the bot's items. Each item is named
// after its environment variable and keeps the value in "credential".
const Vault = "lemniscate"

// Resolver resolves a secret reference such as op://vault/item/field.
type Resolver interface {
	Resolve(ctx context.Context, secretReference string) (string, error)
}

// NewResolver creates a 1Password client authenticated with a service account token.
func NewResolver(ctx context.Context, token string) (Resolver, error) {
	client, err := onepassword.NewClient(
		ctx,
		onepassword.WithServiceAccountToken(token),
		onepassword.WithIntegrationInfo("Lemniscate Integration", "v1.0.0"),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating 1password client: %w", err)
	}
	return client.Secrets(), nil
}

func reference(name string) string {
	return fmt.Sprintf("op://%s/%s/credential", Vault, name)
}

// Fill resolves every required or optional secret that is empty in env.
// Values already set in the environment win. A failed optional lookup is
// logged and skipped; a failed required lookup is returned.
func Fill(ctx context.Context, r Resolver, env *config.Env, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.Default()
	}
	for _, f := range env.Required() {
		if *f.Value != "" {
			continue
		}
		v, err := r.Resolve(ctx, reference(f.Name))
		if err != nil {
			return fmt.Errorf("error resolving secret %s: %w", f.Name, err)
		}
		*f.Value = v
	}
	for _, f := range env.Optional() {
		if *f.Value != "" {
			continue
		}
		v, err := r.Resolve(ctx, reference(f.Name))
		if err != nil {
			logger.Debug("optional secret not resolved", "name", f.Name, "error", err.Error())
			continue
		}
		*f.Value = v
	}
	return nil
}

// Init fills env from 1Password when OP_SA is set and does nothing otherwise.
func Init(ctx context.Context, env *config.Env, logger *logging.Logger) error {
	if env.OnePasswordToken == "" {
		return nil
	}
	r, err := NewResolver(ctx, env.OnePasswordToken)
	if err != nil {
		return fmt.Errorf("error getting secrets: %w", err)
	}
	if err := Fill(ctx, r, env, logger); err != nil {
		return fmt.Errorf("error getting secrets: %w", err)
	}
	return nil
}
