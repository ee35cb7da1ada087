// Package cli реализует инструмент командной строки bender-mq.
//
// # Обзор
//
// CLI — утилита оператора: показывает и объявляет топологию RabbitMQ,
// публикует сообщения вручную, ставит jobs в outbox и показывает их состояние.
//
// # Ключевые компоненты
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Notef) — в stderr.
// Это позволяет использовать pipe: bender-mq topology show --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - topology: show, declare
//   - post: info, job, work, worker
//   - job: submit, show
//
// Каждая группа создаётся через фабричную функцию (NewTopologyCmd и т.д.),
// принимающую brokerFn/storeFn и outputFn — замыкания для ленивого
// создания соединений и Output после парсинга PersistentFlags.
package cli
