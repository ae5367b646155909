// Package openapi turns an OpenAPI operation whose request body is a form
// (multipart/form-data or application/x-www-form-urlencoded) into an HTML form
// the controller can bind. The public contracts live here; the kin-openapi
// backed loader and parser live under internal/openapi and are constructed by
// the top-level formmanager package.
package openapi
