// Package mintclient provides the primary entry point for constructing a
// MintHCM V8 API client that implements the minthcm.Client interface.
//
// It layers configuration, token storage, OAuth2 authentication and HTTP
// transport on top of the interfaces and types defined in the minthcm package.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/minthcm-client/pkg/minthcm"
//	  "github.com/fivetwenty-io/minthcm-client/pkg/mintclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  err := mintclient.Open(ctx, &minthcm.Config{
//	    BaseURL:      "https://hcm.example.com/legacy/Api/V8",
//	    ClientID:     "client-id",
//	    ClientSecret: "client-secret",
//	    LogoutOnExit: true,
//	  }, func(cli minthcm.Client) error {
//	    _, err := cli.Module("Employees").Create(ctx, minthcm.Attributes{"last_name": "Doe"})
//	    return err
//	  })
//	  if err != nil { log.Fatal(err) }
//	}
//
// Configuration files
//
// LoadConfig reads YAML with MINTHCM_* environment overrides, and SaveConfig
// writes it back with 0600 permissions:
//
//	base_url: https://hcm.example.com/legacy/Api/V8
//	client_id: client-id
//	client_secret: client-secret
//	token_path: /var/lib/minthcm/AccessToken.json
//	http_timeout: 30s
//
// Token storage
//
// By default the token is kept in AccessToken.json in the working directory.
// Use NewFileTokenStorage, NewMemoryTokenStorage or NewNATSTokenStorage with
// Config.TokenStorage, or Config.NATS to let the client manage a NATS
// connection itself.
package mintclient
