package main

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/ZaguanLabs/treelai/provider"
)

const (
	// WarmupSource identifies scheduled warmup events.
	WarmupSource = "warmup"

	// WarmupDelay keeps this instance busy long enough for the
	// self-invocations to land on other instances.
	WarmupDelay = 75 * time.Millisecond
)

// WarmupEvent is the scheduled event payload. Concurrency is the number of
// instances to keep warm, this one included.
type WarmupEvent struct {
	Source      string `json:"source"`
	Concurrency int    `json:"concurrency"`
}

// WarmupResponse is returned for warmup events.
type WarmupResponse struct {
	Status          string `json:"status"`
	InstancesWarmed int    `json:"instancesWarmed"`
}

// IsWarmupEvent reports whether event is a warmup ping.
func IsWarmupEvent(event json.RawMessage) (*WarmupEvent, bool) {
	var warmup WarmupEvent
	if err := json.Unmarshal(event, &warmup); err != nil {
		return nil, false
	}
	if warmup.Source != WarmupSource {
		return nil, false
	}
	if warmup.Concurrency < 0 {
		warmup.Concurrency = 0
	}
	return &warmup, true
}

// selfWarmer fans a warmup event out to additional instances of this function.
type selfWarmer struct {
	functionName string
	delay        time.Duration

	once   sync.Once
	client provider.LambdaInvoker
	err    error
}

func newSelfWarmer() *selfWarmer {
	return &selfWarmer{
		functionName: os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
		delay:        WarmupDelay,
	}
}

// HandleWarmup counts this instance and asynchronously invokes the
// function Concurrency-1 more times.
func (w *selfWarmer) HandleWarmup(ctx context.Context, warmup *WarmupEvent) (*WarmupResponse, error) {
	instancesWarmed := 1

	if others := warmup.Concurrency - 1; others > 0 {
		if err := w.selfInvoke(ctx, others); err == nil {
			instancesWarmed += others
		}
	}

	time.Sleep(w.delay)

	return &WarmupResponse{
		Status:          "warm",
		InstancesWarmed: instancesWarmed,
	}, nil
}

func (w *selfWarmer) invoker(ctx context.Context) (provider.LambdaInvoker, error) {
	w.once.Do(func() {
		if w.client != nil {
			return
		}
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			w.err = err
			return
		}
		w.client = lambdasdk.NewFromConfig(cfg)
	})
	return w.client, w.err
}

func (w *selfWarmer) selfInvoke(ctx context.Context, count int) error {
	client, err := w.invoker(ctx)
	if err != nil {
		return err
	}

	// Children get concurrency 0 so they do not fan out again.
	payload, err := json.Marshal(WarmupEvent{Source: WarmupSource})
	if err != nil {
		return err
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		invokeErr error
	)
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := client.Invoke(ctx, &lambdasdk.InvokeInput{
				FunctionName:   aws.String(w.functionName),
				InvocationType: types.InvocationTypeEvent,
				Payload:        payload,
			})
			if err != nil {
				mu.Lock()
				if invokeErr == nil {
					invokeErr = err
				}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return invokeErr
}
