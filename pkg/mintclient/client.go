// Package mintclient provides the main entry point for creating MintHCM API clients
package mintclient

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/minthcm-client/internal/client"
	"github.com/fivetwenty-io/minthcm-client/pkg/minthcm"
)

// New creates an authenticated MintHCM API client.
//
// The base URL is normalized (trailing slashes removed, https:// assumed when
// no scheme is given) and the token endpoint is derived from it unless
// config.TokenURL is set. A stored token is reused; otherwise one is fetched
// with the client-credentials grant before New returns.
func New(ctx context.Context, config *minthcm.Config) (minthcm.Client, error) {
	if config == nil {
		return nil, minthcm.ErrConfigRequired
	}

	cli, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return cli, nil
}

// NewWithClientCredentials creates a client with default settings.
func NewWithClientCredentials(ctx context.Context, baseURL, clientID, clientSecret string) (minthcm.Client, error) {
	return New(ctx, &minthcm.Config{
		BaseURL:      baseURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
}

// Open creates a client, passes it to fn and closes it afterwards, logging
// out first when config.LogoutOnExit is set. The error from fn takes
// precedence over the error from closing.
func Open(ctx context.Context, config *minthcm.Config, fn func(minthcm.Client) error) (err error) {
	cli, err := New(ctx, config)
	if err != nil {
		return err
	}

	defer func() {
		closeErr := cli.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("closing client: %w", closeErr)
		}
	}()

	return fn(cli)
}
