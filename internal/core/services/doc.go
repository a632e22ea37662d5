// Package services implements the driving ports.
//
// A search flows SearchOrchestrator -> scheduler (barrier or pool) ->
// JobRunner, one job per source, with outcomes folded into RunState by a
// single writer. RunHistory and Scheduler (saved sweeps) sit beside it.
// Services see only ports, never concrete adapters.
package services
