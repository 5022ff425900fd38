/*
 * doc.go, part of gohbond.
 *
 * Copyright 2023 Raul Mera <rauldotmeraatusachdotcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//Package ctf implements the compressed text format, a trajectory
//format of goHBond's own. ctf aims to be trivial to read and write
//from any language, to carry everything a time correlation analysis
//needs (coordinates, boxes and the time step), and to round-trip
//float64 coordinates exactly, at the price of larger files than a
//binary format would give.

/******************** Format specification ****************************

A ctf file is ASCII text, compressed according to the last letter of
its file name: ctz for gzip, ctl for lzw, ctr for flate (deflate with
no gzip wrapping), and z-standard for ctf itself or any other ending.

The file starts with a header of zero or more lines, each a key=value
pair. The only key this package understands is "dt", whose value is
the time between frames, in ps; unknown keys are skipped. The header
ends with a line starting with "**", followed by whitespace and the
number of atoms per frame. The "**" sequence may not start any other
line in the file.

After the header come the frames. A frame is one line per atom, each
with the 3 cartesian coordinates, in Angstrom, separated by spaces,
in any format Go's strconv.ParseFloat accepts. A frame ends with a
line starting with "*" (no whitespace before it), either alone, or
followed by 9 floating point numbers: the 3 vectors of the simulation
box, row after row, in Angstrom. Every frame must have exactly the
number of atoms the header declares.

***********************************************************************/

package ctf
