package integrations_test

import (
	"fmt"

	"github.com/holly-cummins/extensions.io/pkg/integrations"
)

func ExampleURLEncode() {
	// Labels and Solr queries are escaped before going into URLs
	fmt.Println(integrations.URLEncode("area/hibernate-orm"))
	fmt.Println(integrations.URLEncode("kind bug"))
	// Output:
	// area%2Fhibernate-orm
	// kind+bug
}

func Example_errors() {
	// Standard errors for upstream operations
	fmt.Println("ErrNotFound:", integrations.ErrNotFound)
	fmt.Println("ErrNetwork:", integrations.ErrNetwork)
	// Output:
	// ErrNotFound: resource not found
	// ErrNetwork: network error
}
