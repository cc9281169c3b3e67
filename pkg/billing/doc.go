// Package billing defines the public types of the billing API client.
//
// The client talks to a JSON REST API exposing items, persons, invoices and
// invoice-items. Every call is authenticated with a bearer token obtained
// from the /authorize endpoint using client credentials; the token and the
// per-environment settings are persisted through a KeyValueStore.
//
// Basic usage:
//
//	client, err := billingclient.New(ctx, &billing.Config{
//		Environment: billing.EnvironmentDevelopment,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.UpdateClientCredentials(ctx, "client-id", "client-secret")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	items, err := client.Items().List(ctx)
//
// Errors:
//
// Every failure of a request or an authorization is an *APIError. Timeouts
// carry status 408 and the message "Request timeout", transport failures
// carry status 500, and HTTP failures carry the real status:
//
//	_, err := client.Items().Get(ctx, "42")
//	if billing.IsNotFound(err) {
//		// handle 404
//	}
//
//	if apiErr, ok := billing.AsAPIError(err); ok {
//		fmt.Println(apiErr.Debug())
//	}
package billing
