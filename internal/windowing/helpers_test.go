package windowing_test

import (
	"fmt"

	"github.com/petasbytes/charlotte-bridge/memory"
)

// Message constructors

func User(text string) memory.Message {
	return memory.Message{Role: memory.RoleUser, Content: memory.NewText(text)}
}

func Asst(text string) memory.Message {
	return memory.Message{Role: memory.RoleAssistant, Content: memory.NewText(text)}
}

func Msg(role, text string) memory.Message {
	return memory.Message{Role: role, Content: memory.NewText(text)}
}

// Turns builds n user/assistant pairs numbered from 0 (oldest).
func Turns(n int) []memory.Message {
	out := make([]memory.Message, 0, 2*n)
	for i := 0; i < n; i++ {
		out = append(out, User(fmt.Sprintf("q%d", i)), Asst(fmt.Sprintf("a%d", i)))
	}
	return out
}

func texts(msgs []memory.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content.Text()
	}
	return out
}
