package config

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

const secretRefPrefix = "sm://"

// SecretResolver turns a secret reference into its value
type SecretResolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// IsSecretRef reports whether v points at Secret Manager instead of holding the secret itself
func IsSecretRef(v string) bool {
	return strings.HasPrefix(v, secretRefPrefix)
}

// HasSecretRefs reports whether any secret field needs resolving
func (c *Config) HasSecretRefs() bool {
	for _, p := range c.secretFields() {
		if IsSecretRef(*p) {
			return true
		}
	}
	return false
}

// ResolveSecrets replaces every sm:// reference with the value returned by r
func (c *Config) ResolveSecrets(ctx context.Context, r SecretResolver) error {
	for _, p := range c.secretFields() {
		if !IsSecretRef(*p) {
			continue
		}
		name := strings.TrimPrefix(*p, secretRefPrefix)
		val, err := r.Resolve(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to resolve secret %s: %w", name, err)
		}
		*p = strings.TrimSpace(val)
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	return nil
}

func (c *Config) secretFields() []*string {
	return []*string{
		&c.Database.Password,
		&c.JWT.Secret,
		&c.SendGrid.APIKey,
		&c.Security.UnlockPasswordHash,
	}
}

// GCPSecretResolver reads secret versions from Google Secret Manager.
// Names have the form projects/<p>/secrets/<s>/versions/<v>.
type GCPSecretResolver struct {
	client *secretmanager.Client
}

func NewGCPSecretResolver(ctx context.Context) (*GCPSecretResolver, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("secretmanager.NewClient failed: %w", err)
	}
	return &GCPSecretResolver{client: client}, nil
}

func (r *GCPSecretResolver) Resolve(ctx context.Context, name string) (string, error) {
	resp, err := r.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Payload == nil {
		return "", fmt.Errorf("empty payload for %s", name)
	}
	return string(resp.Payload.Data), nil
}

func (r *GCPSecretResolver) Close() error {
	return r.client.Close()
}
