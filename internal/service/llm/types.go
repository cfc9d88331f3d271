package llm

import (
	"context"
)

type Question struct {
	Content string
}

type Answer struct {
	Content string
}

type Service interface {
	AskOnce(ctx context.Context, q Question) (Answer, error)
}
