// Package measure collects conversion statistics: how many steps of each shape were
// decoded and how long they took on average.
package measure
