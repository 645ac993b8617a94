package api

import (
	"errors"
	"metacity/internal/app/ports"
)

var ErrPoolFull = errors.New("worker pool queue is full")

func (t *Twitch) Pool() ports.APIPoolPort {
	return t.pool
}

func (p *TwitchPool) Submit(task func()) error {
	select {
	case <-p.shutdown:
		return errors.New("worker pool stopped")
	default:
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

func (p *TwitchPool) Stop() {
	p.stop.Do(func() { close(p.shutdown) })
	p.wg.Wait()
}

func (p *TwitchPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case task := <-p.tasks:
			task()
		case <-p.shutdown:
			return
		}
	}
}
