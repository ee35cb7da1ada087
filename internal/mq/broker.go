package mq

// Broker — полный набор операций bender-mq над одним каналом.
// Реализуется *Manager; пакеты relay и cli зависят от этого интерфейса.
type Broker interface {
	TopologyDeclarer
	Publisher
	PayloadPoster
	Close() error
}
