// Package busco builds scripts that run BUSCO over assembled or annotated
// sequences.
//
// Required inputs (sample data slots):
//   - `fasta.nucl` for `--mode geno|genome|tran|transcriptome`, or
//     `fasta.prot` for `--mode prot|proteins`, under every sample
//     (`scope: sample`) or under `project_data` (`scope: project`).
//   - `BUSCO.lineage` under `project_data` unless `--lineage` is redirected.
//     The preliminary script fills it when `get_lineage` is configured; a
//     lineage downloaded by an earlier BUSCO instance is reused.
//
// Configuration:
//   - `scope` is mandatory.
//   - `-m` is accepted as an alias of `--mode`.
//   - `-i`, `--in`, `-o`, `--out`, `-t` and `--tmp` are set by the step; a
//     redirected value is dropped with a warning.
//   - `get_lineage` names a `.tar.gz` lineage archive to download with wget.
//
// Outputs:
//   - `BUSCO` per unit: `<unit dir>/run_<unit>`, where unit is the sample
//     name or `project_data`. `--out` gets the same unit name.
//   - `BUSCO.lineage` under `project_data` when the archive is downloaded:
//     the unpacked directory in the step's permanent data dir.
package busco
