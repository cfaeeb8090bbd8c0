// Package client delivers GraphQL operations over HTTP with support for
// automatic persisted queries (APQ).
//
// With APQ enabled, a query is first sent as its sha256 identifier only.
// When the server does not know the identifier it answers with a
// PersistedQueryNotFound error, and the transport transparently re-sends the
// operation once with the full document and the identifier, letting the
// server register the hash in the same round trip. Callers never see the
// intermediate miss; they get exactly one response or error per send.
//
// Basic usage:
//
//	cli, err := client.NewClient("https://api.example.com/graphql",
//		client.EnableAutoPersistedQueries(),
//		client.ApplyOperationHashing(),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	var data struct{ Viewer struct{ Name string } }
//	if _, err := cli.Query(ctx, "Viewer", "query Viewer { viewer { name } }", nil, &data, nil); err != nil {
//		log.Fatal(err)
//	}
package client
