package integrations_test

import (
	"fmt"

	"github.com/matzehuels/cratemod/pkg/integrations"
)

func ExampleNormalizeCrateName() {
	// Crate names normalize to lowercase with hyphens for lookups
	fmt.Println(integrations.NormalizeCrateName("Serde"))
	fmt.Println(integrations.NormalizeCrateName("serde_json"))
	fmt.Println(integrations.NormalizeCrateName("  tokio  "))
	// Output:
	// serde
	// serde-json
	// tokio
}

func ExampleURLEncode() {
	// URL-encode special characters for API queries
	fmt.Println(integrations.URLEncode("cfg(unix)"))
	fmt.Println(integrations.URLEncode("crate name"))
	// Output:
	// cfg%28unix%29
	// crate+name
}

func Example_errors() {
	// Standard errors for registry operations
	fmt.Println("ErrNotFound:", integrations.ErrNotFound)
	fmt.Println("ErrNetwork:", integrations.ErrNetwork)
	// Output:
	// ErrNotFound: resource not found
	// ErrNetwork: network error
}
