// Package explorer provides types, interfaces, and helpers for querying the
// HCP Terraform / Terraform Enterprise Explorer and private registry APIs.
//
// # Overview
//
// The explorer package defines the filter model (operators and one field
// enumeration per resource kind), the ordered query encoding, the page
// envelope and the typed errors. A concrete Client is provided by the
// tfeclient package.
//
// Getting a client
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
//	  cli, err := tfeclient.NewWithToken("my-org", token)
//	  if err != nil { log.Fatal(err) }
//
//	  drifted, err := cli.Workspaces(context.Background(),
//	    explorer.NewWorkspaceFilter(explorer.WorkspaceFieldDrifted, explorer.OperatorIs, "true"),
//	    explorer.NewWorkspaceFilter(explorer.WorkspaceFieldProjectName, explorer.OperatorContains, "prod"),
//	  )
//	  if err != nil { log.Fatal(err) }
//	  _ = drifted
//	}
//
// # Filters
//
// A filter is a (field, operator, value) clause. Field types are distinct per
// resource kind, so a workspace field cannot be passed to Modules. Filter i is
// sent as filter[i][field][operator][0]=value; order is preserved and
// duplicates are kept.
//
// # Pagination and pacing
//
// Every query follows links.next until meta.pagination.next-page is null and
// returns all records in fetch order. When a result set spans at least as
// many pages as the API's request ceiling, the Pacer inserts a short pause
// before each following page.
//
// # Errors
//
// HTTP 429 yields *RateLimitError carrying x-ratelimit-limit, other non-2xx
// statuses yield *RequestError and failures before a response yield
// *TransportError. None are retried.
package explorer
