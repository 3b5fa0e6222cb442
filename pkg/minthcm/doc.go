// Package minthcm provides types, interfaces, and helpers for working with the
// MintHCM V8 REST API.
//
// # Overview
//
// The minthcm package defines the client interfaces (Client, ModuleClient),
// configuration, error types and the query builder. A concrete implementation
// is provided by the mintclient package, which wires token storage, OAuth2
// authentication and transport. Records are not modelled: responses are
// returned as parsed JSON documents.
//
// Getting a client
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
//	  cli, err := mintclient.New(ctx, &minthcm.Config{
//	    BaseURL:      "https://hcm.example.com/legacy/Api/V8",
//	    ClientID:     "client-id",
//	    ClientSecret: "client-secret",
//	  })
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  employees := cli.Module("Employees")
//	  doc, err := employees.Query(ctx, minthcm.NewQueryParams().
//	    WithFields("first_name", "last_name").
//	    Where("status", "Active").
//	    WhereOp("date_entered", minthcm.OpGreaterThan, "2024-01-01"))
//	  if err != nil { log.Fatal(err) }
//	  _ = doc
//	}
//
// # Filters
//
// QueryParams translates filters into the API's filter syntax: equality
// filters become filter[field][EQ]=value, comparisons use the operator code
// table (">" is GT, "NOT LIKE" is NOT_LIKE, ...) and BETWEEN expands into a GT
// and an LT clause. One combinator ("and" or "or") applies to all filters.
//
// # Errors
//
// Every failure is either an AuthenticationError or a RequestError. Both
// carry a message, an optional HTTP status code and optional details, and
// match ErrAuthentication or ErrRequest under errors.Is.
//
// # Authentication
//
// The client obtains a token with the OAuth2 client-credentials grant and
// persists it so later processes can reuse it. A request that receives 401,
// or that finds the token expired, refreshes the token and is retried exactly
// once. A Client is safe for concurrent use; concurrent requests that hit an
// expired token trigger a single refresh.
package minthcm
