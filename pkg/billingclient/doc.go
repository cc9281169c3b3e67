// Package billingclient provides the entry point for constructing a billing
// API client that implements the billing.Client interface.
//
// It wires the configuration store, the token cache, the authorizer and the
// request dispatcher on top of the types defined in the billing package.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/billing-client/pkg/billing"
//	  "github.com/fivetwenty-io/billing-client/pkg/billingclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // Settings and tokens live in memory.
//	  cli, err := billingclient.New(ctx, &billing.Config{
//	    Environment: billing.EnvironmentStaging,
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  // Or persist them in a file shared with the billing CLI:
//	  cli, err = billingclient.NewWithStore(ctx, &billing.Config{}, &billingclient.StoreConfig{
//	    Type: billingclient.StoreTypeFile,
//	    File: &billingclient.FileConfig{Path: "/var/lib/billing/state.yml"},
//	  })
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  invoices, err := cli.Invoices().ListByUser(ctx, "42")
//	  if err != nil { log.Fatal(err) }
//	  _ = invoices
//	}
//
// # Environments
//
// When Config.Environment is empty the BILLING_ENVIRONMENT variable selects
// one of development, staging or production; anything else means
// development.
//
// # Backends
//
// OpenStore supports memory, file (YAML), redis, nats (JetStream key-value)
// and sqlite backends.
package billingclient
