// Package common holds the ambient pieces shared by all dLock packages:
// the dragonboat-compatible logger factory, the client configuration
// struct and the VictoriaMetrics counters recorded by the quorum protocols.
//
// Loggers are obtained with logger.GetLogger(name) where name is one of
// LoggerNames. Call InitLoggers once at startup to install the dLock
// formatter and set the level; libraries never call it themselves.
package common
