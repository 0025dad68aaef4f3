// Package cli wires the relcheck root command, configuration loading, and
// structured logging.
package cli
