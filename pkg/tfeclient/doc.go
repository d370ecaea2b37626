// Package tfeclient is the entry point for constructing an explorer.Client
// against HCP Terraform or a Terraform Enterprise installation.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/terrascout/terrascout/pkg/explorer"
//	  "github.com/terrascout/terrascout/pkg/tfeclient"
//	)
//
//	func example() {
//	  // HCP Terraform with a team or user token.
//	  cli, err := tfeclient.NewWithToken("my-org", token)
//	  if err != nil { log.Fatal(err) }
//
//	  // Or a Terraform Enterprise host; the scheme defaults to https.
//	  cli, err = tfeclient.New(&explorer.Config{
//	    Address:      "tfe.example.com",
//	    Organization: "my-org",
//	    Token:        token,
//	    Logger:       myLogger,
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  modules, err := cli.Modules(context.Background(),
//	    explorer.NewModuleFilter(explorer.ModuleFieldWorkspaceCount, explorer.OperatorGTEQ, "5"),
//	  )
//	  if err != nil { log.Fatal(err) }
//	  _ = modules
//	}
//
// Every query method blocks until all pages are fetched and returns either
// the complete record set or an error. Clients are safe for concurrent use;
// each call runs its own pagination loop.
package tfeclient
