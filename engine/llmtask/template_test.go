package llmtask

import "testing"

func TestRender(t *testing.T) {
	out, err := Render("Write a report about {{.Topic}}.", struct{ Topic string }{Topic: "Apple stock"})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	want := "Write a report about Apple stock."
	if out != want {
		t.Fatalf("Render = %q, want %q", out, want)
	}
}

func TestRender_BadTemplate(t *testing.T) {
	if _, err := Render("{{.Unclosed", nil); err == nil {
		t.Fatal("expected error for malformed template")
	}
}
