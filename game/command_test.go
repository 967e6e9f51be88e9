package game

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
)

func TestDecodePlayerCommand(t *testing.T) {
	tok := NewToken()
	cases := []struct {
		in   string
		want PlayerCommand
	}{
		{`{"type":"Ping"}`, PingCommand{}},
		{`{"type":"Spawn","name":"kani","hue":120.5}`, SpawnCommand{Name: "kani", Hue: 120.5}},
		{`{"type":"Scan","token":"` + tok.String() + `"}`, ScanCommand{Token: tok}},
		{`{"type":"Turn","token":"` + tok.String() + `","side":"Left"}`, TurnCommand{Token: tok, Side: Left}},
		{`{"type":"Move","token":"` + tok.String() + `","side":"Right"}`, MoveCommand{Token: tok, Side: Right}},
		{`{"type":"Paint","token":"` + tok.String() + `"}`, PaintCommand{Token: tok}},
	}
	for _, c := range cases {
		got, err := DecodePlayerCommand([]byte(c.in))
		if err != nil {
			t.Fatalf("%s: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("%s: got %#v want %#v", c.in, got, c.want)
		}
	}
}

func TestDecodePlayerCommandRejects(t *testing.T) {
	cases := []struct {
		in   string
		want error
	}{
		{`{"type":"SpawnFood"}`, ErrUnknownCommand},
		{`{"type":"Walk"}`, ErrUnknownCommand},
		{`{}`, ErrUnknownCommand},
		{`{"type":"Spawn","hue":1}`, ErrInvalidCommand},
		{`{"type":"Move","token":"` + NewToken().String() + `","side":"Up"}`, ErrInvalidCommand},
		{`{"type":"Turn","token":"` + NewToken().String() + `"}`, ErrInvalidCommand},
		{`{"type":"Scan","token":"not-a-uuid"}`, ErrInvalidCommand},
	}
	for _, c := range cases {
		_, err := DecodePlayerCommand([]byte(c.in))
		if !errors.Is(err, c.want) {
			t.Fatalf("%s: got %v want %v", c.in, err, c.want)
		}
	}
	if _, err := DecodePlayerCommand([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for garbage input")
	}
}

func TestCommandJSONRoundTrip(t *testing.T) {
	in := MoveCommand{Token: NewToken(), Side: Left}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := DecodePlayerCommand(b)
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("got %#v want %#v", out, in)
	}
}

func TestResultJSON(t *testing.T) {
	tok := NewToken()
	cases := []struct {
		in   Result
		want string
	}{
		{OkResult{}, `{"type":"Ok"}`},
		{PongResult{}, `{"type":"Pong"}`},
		{CrabNotFoundResult{}, `{"type":"CrabNotFound"}`},
		{TurnResult{}, `{"type":"Turn"}`},
		{SpawnResult{Token: tok}, `{"type":"Spawn","token":"` + tok.String() + `"}`},
		{ScanResult{WhatYouCanSee: SightWall}, `{"type":"Scan","whatYouCanSee":"Wall"}`},
		{MoveResult{Success: true, Point: 2, TotalPoint: 5}, `{"type":"Move","success":true,"point":2,"totalPoint":5}`},
		{PaintResult{Success: false, TotalPoint: 0}, `{"type":"Paint","success":false,"yourPaints":[],"totalPoint":0}`},
		{PaintResult{Success: true, YourPaints: []Position{Pos(1, 2)}, TotalPoint: 3}, `{"type":"Paint","success":true,"yourPaints":[{"x":1,"y":2}],"totalPoint":3}`},
	}
	for _, c := range cases {
		b, err := json.Marshal(c.in)
		if err != nil {
			t.Fatalf("%T: %v", c.in, err)
		}
		if string(b) != c.want {
			t.Fatalf("%T: got %s want %s", c.in, b, c.want)
		}
	}
}

func TestSnapshotJSONHidesTokens(t *testing.T) {
	w := NewWorld(3)
	crab := Crab{Name: "kani", Token: NewToken(), Hue: 10, Direction: East, Position: Pos(1, 1)}
	if err := w.PutCrab(crab); err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(w.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	want := `{"size":3,"crabs":[{"name":"kani","hue":10,"point":0,"direction":"E","position":{"x":1,"y":1}}],"foods":[],"paints":[]}`
	if string(b) != want {
		t.Fatalf("got %s", b)
	}
}
