// Package compiler provides the Pika lexer, parser and semantic analyzer,
// and drives them into the code generator.
//
// Pipeline: Pika source → Lex → Parse → Analyze → codegen.Generate → stack VM instructions
package compiler
