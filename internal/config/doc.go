// Package config загружает конфигурацию bender из YAML файла.
//
// Файл ищется по пути из переменной BENDER_CONFIG, по умолчанию
// /etc/bender/config.yaml. Переменные окружения RABBITMQ_URL, DB_URL и
// METRICS_ADDR переопределяют значения из файла.
//
//	cfg, err := config.Load(config.Location())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	m, err := mq.OpenDefaultChannel(cfg, mq.Options{Logger: logger})
//
// Пакет не хранит глобального состояния: конфигурация передаётся явно.
package config
