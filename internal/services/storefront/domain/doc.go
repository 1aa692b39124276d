// Package domain holds helpers shared by the storefront domain packages.
//
// Each subpackage owns validation and orchestration for one area of the
// store and depends only on the persistence contracts in storage.
package domain
