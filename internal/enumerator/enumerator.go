// Package enumerator discovers the pages of a site.
package enumerator

import "context"

type Enumerator interface {
	Enumerate(ctx context.Context, target string) ([]string, error)
}
