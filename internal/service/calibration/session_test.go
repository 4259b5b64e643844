package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishSurvivesConcurrentCancel(t *testing.T) {
	st := NewStore()
	sess := st.Create("user-1", "Elena")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			st.Publish(sess.ID, ProgressEvent{Stage: StageExtraction, Status: StatusStarted})
		}
	}()

	// Subscribers churn while the pipeline is publishing. A send must never
	// land on a channel a cancel has already closed.
	for i := 0; i < 200; i++ {
		_, cancel := st.Subscribe(sess.ID)
		cancel()
	}
	<-done
}

func TestPublishSurvivesConcurrentDelete(t *testing.T) {
	st := NewStore()
	sess := st.Create("user-1", "Elena")
	ch, cancel := st.Subscribe(sess.ID)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			st.Publish(sess.ID, ProgressEvent{Stage: StagePersist, Status: StatusFatal})
		}
	}()

	st.Delete(sess.ID)
	<-done

	// The subscriber channel drains whatever arrived before the close and
	// then reports closed.
	for {
		if _, ok := <-ch; !ok {
			break
		}
	}
	assert.Empty(t, st.subscribers[sess.ID])
}
