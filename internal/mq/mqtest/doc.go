// Package mqtest предоставляет in-memory AMQP брокер для тестов.
//
// Broker реализует методы *amqp.Channel, которые использует mq.Manager,
// и маршрутизирует сообщения по правилам RabbitMQ:
//   - default exchange ("") доставляет в очередь с именем routing key
//   - direct — точное совпадение binding key
//   - topic  — pattern с "*" (одно слово) и "#" (ноль или больше слов)
//   - fanout — во все привязанные очереди
//
// Немаршрутизируемые mandatory сообщения возвращаются через NotifyReturn.
// Повторное объявление с другими параметрами даёт ошибку 406 и закрывает
// канал, как в RabbitMQ.
//
// Использование:
//
//	b := mqtest.NewBroker()
//	m := mq.NewManager(b, mq.Options{})
//	m.SetupTopology()
//	m.PostToInfo(ctx, "abc", []byte("hello"))
//	msg, ok := b.Get("info")
//
// Broker потокобезопасен для публикаций и чтения, но Close не должен
// выполняться параллельно с Publish.
package mqtest
