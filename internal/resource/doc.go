// Package resource holds the SCIM core resource models and a registry of
// resource kinds by name.
package resource
