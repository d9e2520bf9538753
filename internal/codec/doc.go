// Package codec implements the saturating unary codes used to feed scalar
// raster samples to predictors and to read their answers back.
//
// Two families exist:
//   - Logarithmic: the magnitude is encoded as x = -log2|v|, so values near
//     zero get fine resolution. Exact zero maps to x = n, the saturated code.
//   - Linear: the magnitude is encoded as |v|*n, for offsets already bounded
//     to [-1, 1].
//
// Each family has a forward orientation (leading ones) and, for the
// logarithmic family, a reversed orientation (leading zeros). A negative
// input negates the whole code.
//
// Every encoder produces exactly n values. The Append forms write into a
// caller-owned slice so the generation loop can build its input vectors
// without allocating per cell.
package codec
