// Package views is the default set of page components for newsdesk. Sites
// that want their own markup supply a different newsdesk.ViewFuncs.
package views

import "github.com/eringen/newsdesk"

// Default returns ViewFuncs backed by this package's components.
func Default() newsdesk.ViewFuncs {
	return newsdesk.ViewFuncs{
		Home:           Home,
		Categories:     Categories,
		Category:       Category,
		Trending:       Trending,
		Article:        Article,
		AdminLogin:     AdminLogin,
		AdminDashboard: AdminDashboard,
		AdminForm:      AdminForm,
		Error:          Error,
	}
}
