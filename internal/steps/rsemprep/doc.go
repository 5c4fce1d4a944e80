// Package rsemprep builds rsem-prepare-reference scripts.
//
// The reference fasta is either the external `reference` path or the
// `fasta.nucl` slot of each unit. With a reference the scope defaults to
// project; without one the scope is mandatory.
//
// Companion files (`gtf`, `gff3`, `transcript-to-gene-map`,
// `allele-to-gene-map`, `no-polyA-subset`) found in the unit's slots are
// passed as `--<slot>` unless the same flag was redirected.
//
// Outputs per unit: `RSEM_index` and `RSEM_fasta`, plus `STAR_index` and
// `STAR_fasta` when `--star` is redirected.
package rsemprep
