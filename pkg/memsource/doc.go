// Package memsource is an in-memory JSON backend speaking the default
// go-datagrid REST dialect: page/per_page or limit/offset pagination, search,
// <col> and <col>__<op> filters, order=<field> <dir>, grouped responses via
// view_mode=grouped&group_by=<field>, DELETE /{id}, POST /bulk/{action} and
// GET /export. Filter operators are evaluated with pkg/rules expressions.
//
// It backs tests, examples and the gridctl demo server.
package memsource
