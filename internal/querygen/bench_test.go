package querygen

import (
	"context"
	"testing"
)

func BenchmarkGenerate(b *testing.B) {
	g := newIndexedGenerator(b, map[string]string{"weather.json": weatherSpec, "users.json": usersSpec})
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := g.Generate(ctx, "Get current weather in Tokyo", 3); err != nil {
			b.Fatal(err)
		}
	}
}
