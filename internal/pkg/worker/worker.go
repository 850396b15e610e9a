package worker

import (
	"context"
	"errors"
	"localdeals/internal/pkg/config"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrQueueFull 队列已满，调用方应让上游重投
var ErrQueueFull = errors.New("worker queue full")

// Task 可重试的任务，Run 必须是幂等的
type Task struct {
	ID      string
	Kind    string
	Attempt int         // 已执行次数
	Payload interface{} // 进入死信时原样交给 DeadLetterFunc
	Run     func(ctx context.Context) error
}

// DeadLetterFunc 超过最大重试次数后的兜底处理
type DeadLetterFunc func(ctx context.Context, task Task, err error)

type WorkerPool struct {
	TaskQueue  chan Task
	RetryQueue chan Task // 重试队列
	WorkerNum  int
	MaxRetry   int           // 最大重试次数
	RetryDelay time.Duration // 第 n 次重试延迟 n*RetryDelay

	logger     *zap.Logger
	deadLetter DeadLetterFunc

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	timers  sync.WaitGroup
	mu      sync.RWMutex // 保护 stopped，Stop 之后不会再有任务入队
	stopped bool
}

func NewWorkerPool(cfg config.WorkerConfig, logger *zap.Logger, deadLetter DeadLetterFunc) *WorkerPool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		TaskQueue:  make(chan Task, cfg.QueueSize),
		RetryQueue: make(chan Task, cfg.QueueSize/2+1),
		WorkerNum:  cfg.Workers,
		MaxRetry:   cfg.MaxRetry,
		RetryDelay: cfg.RetryDelay,
		logger:     logger,
		deadLetter: deadLetter,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (p *WorkerPool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	// 启动重试处理协程
	p.wg.Add(1)
	go p.retryWorker()
	p.logger.Info("worker pool started", zap.Int("workers", p.WorkerNum), zap.Int("max_retry", p.MaxRetry))
}

// Stop 停止接收新任务并等待在途任务结束。
// 队列中尚未执行的任务与未完成的重试都进入死信，调用方已经向上游确认过这些任务。
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
	p.timers.Wait()
	p.drain(p.TaskQueue)
	p.drain(p.RetryQueue)
}

func (p *WorkerPool) drain(queue chan Task) {
	for {
		select {
		case task := <-queue:
			p.fail(task, context.Canceled)
		default:
			return
		}
	}
}

// AddTask 入队，队列满或已停止时返回 ErrQueueFull
func (p *WorkerPool) AddTask(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrQueueFull
	}
	select {
	case p.TaskQueue <- task:
		return nil
	default:
		p.logger.Warn("worker queue full", zap.String("task_id", task.ID), zap.String("kind", task.Kind))
		return ErrQueueFull
	}
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.TaskQueue:
			p.process(id, task)
		}
	}
}

func (p *WorkerPool) process(id int, task Task) {
	task.Attempt++
	err := task.Run(p.ctx)
	if err == nil {
		if task.Attempt > 1 {
			p.logger.Info("task succeeded after retry", zap.String("task_id", task.ID), zap.Int("attempt", task.Attempt))
		}
		return
	}

	p.logger.Warn("task failed",
		zap.Int("worker", id),
		zap.String("task_id", task.ID),
		zap.String("kind", task.Kind),
		zap.Int("attempt", task.Attempt),
		zap.Error(err))

	// 如果未达到最大重试次数，加入重试队列
	if task.Attempt <= p.MaxRetry {
		select {
		case p.RetryQueue <- task:
			return
		default:
			p.logger.Warn("retry queue full", zap.String("task_id", task.ID))
		}
	}
	p.fail(task, err)
}

func (p *WorkerPool) retryWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.RetryQueue:
			// 线性退避，不阻塞后续重试
			p.timers.Add(1)
			delay := time.Duration(task.Attempt) * p.RetryDelay
			time.AfterFunc(delay, func() {
				defer p.timers.Done()
				if p.ctx.Err() != nil {
					p.fail(task, p.ctx.Err())
					return
				}
				select {
				case p.TaskQueue <- task:
				default:
					p.fail(task, ErrQueueFull)
				}
			})
		}
	}
}

func (p *WorkerPool) fail(task Task, err error) {
	p.logger.Error("task dead-lettered",
		zap.String("task_id", task.ID),
		zap.String("kind", task.Kind),
		zap.Int("attempts", task.Attempt),
		zap.Error(err))
	if p.deadLetter != nil {
		// 死信写入不能依赖已取消的 ctx
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		p.deadLetter(ctx, task, err)
	}
}
