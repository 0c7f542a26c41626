package compiler

import (
	"fmt"
	"testing"
)

func TestPrograms_E2E(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{
			name: "Recursion",
			src: `
func fact <int n> -> int {
	if (n <= 1) { return 1; }
	return n * fact(n - 1);
}
exec { print fact(6), _n_, fact(10); }`,
			expected: "720\n3628800",
		},
		{
			name: "Recursion With Two Calls",
			src: `
func fib <int n> -> int {
	if (n < 2) { return n; }
	return fib(n - 1) + fib(n - 2);
}
exec { print fib(15); }`,
			expected: "610",
		},
		{
			name: "Mutual Recursion",
			src: `
func even <int n> -> bool { if (n == 0) { return true; } return odd(n - 1); }
func odd <int n> -> bool { if (n == 0) { return false; } return even(n - 1); }
exec { print even(10), \s, odd(7), \s, even(3); }`,
			expected: "true true false",
		},
		{
			name: "Loop With Break And Continue",
			src: `
exec {
	var i := 0;
	var sum := 0;
	while (true) {
		i := i + 1;
		if (i > 10) { break; }
		if (i - i / 2 * 2 == 1) { continue; }
		sum := sum + i;
	}
	print sum;
}`,
			expected: "30",
		},
		{
			name: "Nested Loops",
			src: `
exec {
	var i := 1;
	while (i <= 3) {
		var j := 1;
		while (j <= i) {
			print j;
			j := j + 1;
		}
		print _n_;
		i := i + 1;
	}
}`,
			expected: "1\n12\n123\n",
		},
		{
			name: "Arrays",
			src: `
exec {
	var a := new [int](5);
	var i := 0;
	while (i < length a) {
		a[i] := i * i;
		i := i + 1;
	}
	print a, \s, length a, _n_;
	var m := [[1, 2], [3]];
	m[1][0] := 9;
	print m, _n_;
	var f := [1.5, 2];
	f[1] := 3;
	print f, [true, false];
}`,
			expected: "[0,1,4,9,16] 5\n[[1,2],[9]]\n[1.5,3][true,false]",
		},
		{
			name: "Array Parameter",
			src: `
func sum <[int] xs> -> int {
	var t := 0;
	var i := 0;
	while (i < length xs) {
		t := t + xs[i];
		i := i + 1;
	}
	return t;
}
exec { print sum([1, 2, 3, 4]), \s, sum(new [int](3)); }`,
			expected: "10 0",
		},
		{
			name: "Rationals",
			src: `
exec {
	var r := 1 // 2 + 1 // 3;
	print r, \s, 7 // 2, \s, [0.75 | rat], \s, 22 // 7 /// 100, \s, 1 // 3 //// 4;
	r := r * 6;
	print \s, r, \s, 1 // 3 < 1 // 2;
}`,
			expected: "0_5/6 3_1/2 0_3/4 314 0_1/4 5 true",
		},
		{
			name: "Rational Result",
			src: `
func avg <int a, int b> -> rat { return (a + b) // 2; }
exec { print avg(1, 2), \s, avg(-4, 1), \s, [avg(3, 4) | int]; }`,
			expected: "1_1/2 -1_1/2 3",
		},
		{
			name: "Keyword Aliases",
			src:  `exec { print 3 over 4, \s, [2.5 cast int]; }`,
			expected: "0_3/4 2",
		},
		{
			name:     "Floats",
			src:      `exec { const x := 1.5; print x * 2, \s, 1 / 3.0, \s, -x, \s, 2E3; }`,
			expected: "3 0.333333 -1.5 2000",
		},
		{
			name: "Strings And Characters",
			src: `
exec {
	const s := "pika";
	var c := ^a^;
	print s, \s, ^!^, _t_, [65 | char], \s, c + 1, \s, [c + 1 | char];
}`,
			expected: "pika !\tA 98 b",
		},
		{
			name: "Void Function",
			src: `
func greet <string who, int times> -> void {
	var i := 0;
	while (i < times) {
		print "hi ", who, _n_;
		i := i + 1;
	}
}
exec { call greet("bob", 2); }`,
			expected: "hi bob\nhi bob\n",
		},
		{
			name: "Discarded Result",
			src: `
func loud <int n> -> int { print n; return n; }
exec { call loud(4); call loud(2); }`,
			expected: "42",
		},
		{
			name: "Short Circuit",
			src: `
func boom <> -> bool { print "boom"; return true; }
exec { print false && boom(), \s, true || boom(), \s, true && boom(); }`,
			expected: "false true boomtrue",
		},
		{
			name: "Shadowing",
			src: `
exec {
	var x := 1;
	{
		var x := 2;
		print x;
	}
	print x;
}`,
			expected: "21",
		},
		{
			name: "If Else Chain",
			src: `
func sign <int n> -> int {
	if (n < 0) { return -1; } else { if (n == 0) { return 0; } }
	return 1;
}
exec { print sign(-5), sign(0), sign(9); }`,
			expected: "-101",
		},
		{
			name:     "Comparisons Near The Int Range",
			src:      `exec { print -2000000000 < 2000000000, \s, 2000000000 // 3 > 1999999999 // 3; }`,
			expected: "true true",
		},
		{
			name: "Comments",
			src: `
# leading comment
exec {
	print 1 # inline # , 2;   # trailing
}`,
			expected: "12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runPika(t, tt.src); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestRuntimeFaults_E2E(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		fault string
	}{
		{"Integer Divide", "exec { var z := 0; print 10 / z; }", "integer divide by zero"},
		{"Float Divide", "exec { var z := 0.0; print 1.0 / z; }", "floating divide by zero"},
		{"Rational Divide", "exec { var z := 0; print 1 // z; }", "rational divide by zero"},
		{"Index Past End", "exec { var a := [1, 2]; print a[2]; }", "index out of range"},
		{"Negative Index", "exec { var a := [1, 2]; print a[-1]; }", "index out of range"},
		{"Negative Length", "exec { var n := -3; var a := new [int](n); }", "negative array length"},
		{"Missing Return", "func f <int n> -> int { if (n > 0) { return 1; } } exec { print f(0); }", "function ended without return"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runPika(t, tt.src)
			want := fmt.Sprintf("Runtime error: %s\n", tt.fault)
			if got != want {
				t.Errorf("expected %q, got %q", want, got)
			}
		})
	}
}

func TestFaultStopsExecution_E2E(t *testing.T) {
	src := `exec { print "before", \s; var z := 0; print 1 / z; print "after"; }`
	got := runPika(t, src)
	if got != "before Runtime error: integer divide by zero\n" {
		t.Errorf("got %q", got)
	}
}
