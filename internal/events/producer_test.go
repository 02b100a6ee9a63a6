package events

import (
	"bytes"
	"context"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("producer", Ordered, func() {
	Context("write", func() {
		It("writes successfully", func() {
			w := newTestWriter()
			kp := NewEventProducer(w)

			msg := []byte("msg1")
			err := kp.Write(context.TODO(), JobClosedMessageKind, bytes.NewReader(msg))
			Expect(err).To(BeNil())

			msg = []byte("msg2")
			err = kp.Write(context.TODO(), JobProcessedMessageKind, bytes.NewReader(msg))
			Expect(err).To(BeNil())

			<-time.After(1 * time.Second)
			Expect(w.Len()).To(Equal(2))
			Expect(w.At(0).Context.GetType()).To(Equal(JobClosedMessageKind))
			Expect(w.At(1).Context.GetType()).To(Equal(JobProcessedMessageKind))

			kp.Close()
		})
	})
})

type testwriter struct {
	mu       sync.Mutex
	messages []cloudevents.Event
}

func newTestWriter() *testwriter {
	return &testwriter{messages: []cloudevents.Event{}}
}

func (t *testwriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, e)
	return nil
}

func (t *testwriter) Close(_ context.Context) error {
	return nil
}

func (t *testwriter) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

func (t *testwriter) At(i int) cloudevents.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.messages[i]
}
