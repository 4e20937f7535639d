/*
Package domain contains the core models of the mediabridge generator engine.

It defines what a generator is (program, argument template, declared inputs and
outputs), how timeline content is bound to its inputs, and what a run looks like
while it is supervised. This package is kept pure and free of I/O, following
Hexagonal Architecture principles.

# Key Entities

  - GeneratorDefinition: The validated, immutable description of an external tool.
  - Bindings: Maps input names to a strip, a file, or a text literal.
  - Controller: The timeline strip that owns a generator and its links.
  - RunStatus: A read-only snapshot of a supervised run.
*/
package domain
