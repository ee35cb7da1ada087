package mq

import "context"

// Payload — доменный объект, который умеет сериализоваться в текст для отправки.
type Payload interface {
	Serialize() (string, error)
}

// Job — Payload с идентификатором. ID используется как routing key в info-topic.
type Job interface {
	Payload
	ID() string
}

// PayloadPoster публикует Job и Task.
//
// Все методы сериализуют payload ровно один раз и возвращают тот же текст,
// что ушёл в брокер: вызывающий может посчитать по нему fingerprint без
// повторной сериализации.
type PayloadPoster interface {
	PostJob(ctx context.Context, job Job, opts ...PublishOption) (string, error)
	PostJobInfo(ctx context.Context, job Job, opts ...PublishOption) (string, error)
	PostTask(ctx context.Context, task Payload, opts ...PublishOption) (string, error)
	PostTaskInfo(ctx context.Context, task Payload, routingKey string, opts ...PublishOption) (string, error)
}

// PostJob сериализует job и публикует его в exchange job.
// Ошибка сериализации возвращается без изменений, публикации не будет.
func (m *Manager) PostJob(ctx context.Context, job Job, opts ...PublishOption) (string, error) {
	return m.postPayload(ctx, job, ExchangeJob, RoutingKeyJob, opts)
}

// PostJobInfo сериализует job и публикует его в info-topic с routing key job.ID().
func (m *Manager) PostJobInfo(ctx context.Context, job Job, opts ...PublishOption) (string, error) {
	return m.postPayload(ctx, job, ExchangeInfo, job.ID(), opts)
}

// PostTask сериализует task и публикует его в exchange work.
func (m *Manager) PostTask(ctx context.Context, task Payload, opts ...PublishOption) (string, error) {
	return m.postPayload(ctx, task, ExchangeWork, RoutingKeyWork, opts)
}

// PostTaskInfo сериализует task и публикует его в info-topic с указанным routing key.
func (m *Manager) PostTaskInfo(ctx context.Context, task Payload, routingKey string, opts ...PublishOption) (string, error) {
	return m.postPayload(ctx, task, ExchangeInfo, routingKey, opts)
}

func (m *Manager) postPayload(ctx context.Context, p Payload, exchange Exchange, routingKey string, opts []PublishOption) (string, error) {
	text, err := p.Serialize()
	if err != nil {
		return "", err
	}

	if err := m.publish(ctx, exchange, routingKey, []byte(text), opts); err != nil {
		return text, err
	}
	return text, nil
}
